package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pufftrain/internal/artifact"
)

func testModel() *artifact.Model {
	return &artifact.Model{
		Bias:      []float64{0.3, 0.6},
		Intercept: -0.5,
		Kernel: artifact.Kernel{
			Parameters: []artifact.KernelParam{{Name: "gamma", Value: 0.125}},
			Type:       "rbf",
		},
		ModelName:  "puffMarker",
		ModelType:  "svc",
		NormParams: []artifact.NormParam{{Mean: 0, Std: 1}},
		Support:    []artifact.Support{{DualCoef: 1, SupportVector: []float64{0.5}}},
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotType string
	var gotBody artifact.Model

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	if err := client.Upload(context.Background(), "puffMarker", testModel()); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if gotPath != "/v1/models/puffMarker" {
		t.Errorf("path = %s, want /v1/models/puffMarker", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("content type = %s, want application/json", gotType)
	}
	if gotBody.ModelName != "puffMarker" || len(gotBody.Support) != 1 {
		t.Errorf("body = %+v, want the uploaded artifact", gotBody)
	}
	if len(gotBody.Bias) != 2 || gotBody.Bias[1] != 0.6 {
		t.Errorf("bias = %v, want [0.3 0.6]", gotBody.Bias)
	}
}

func TestUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model name already taken", http.StatusConflict)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	err := client.Upload(context.Background(), "puffMarker", testModel())
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("error %q does not carry the status code", err)
	}
}

func TestUploadServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, 1*time.Second)
	if err := client.Upload(context.Background(), "puffMarker", testModel()); err == nil {
		t.Error("expected connection error")
	}
}

func TestUploadHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(srv.URL, 5*time.Second)
	if err := client.Upload(ctx, "puffMarker", testModel()); err == nil {
		t.Error("expected context deadline error")
	}
}
