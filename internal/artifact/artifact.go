// Package artifact serializes trained models into the JSON layout consumed
// by the wearable inference side: decision function, probability scaling,
// decision thresholds and feature normalization in one self-contained file.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"pufftrain/internal/svm"
)

// Model is the exported artifact. It is a plain data carrier; fields are
// declared in the key order the file is written in.
type Model struct {
	Bias       []float64   `json:"bias"`
	Intercept  float64     `json:"intercept"`
	Kernel     Kernel      `json:"kernel"`
	ModelName  string      `json:"modelName"`
	ModelType  string      `json:"modelType"`
	NormParams []NormParam `json:"normparams"`
	ProbA      float64     `json:"probA"`
	ProbB      float64     `json:"probB"`
	Support    []Support   `json:"support"`
}

// Kernel names the kernel and its parameters.
type Kernel struct {
	Parameters []KernelParam `json:"parameters"`
	Type       string        `json:"type"`
}

// KernelParam is one named kernel constant.
type KernelParam struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Support pairs one support vector with its dual coefficient.
type Support struct {
	DualCoef      float64   `json:"dualCoef"`
	SupportVector []float64 `json:"supportVector"`
}

// NormParam carries the standardization constants of one feature column.
type NormParam struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// New assembles the artifact from a fitted classifier, the scaler it was
// trained behind and the chosen probability thresholds.
func New(name string, clf *svm.SVC, scaler *svm.Scaler, bias []float64) *Model {
	probA, probB := clf.ProbParams()
	m := &Model{
		Bias:      append([]float64(nil), bias...),
		Intercept: clf.Intercept(),
		Kernel:    Kernel{Parameters: []KernelParam{}, Type: clf.Kernel},
		ModelName: name,
		ModelType: "svc",
		ProbA:     probA,
		ProbB:     probB,
	}
	if clf.Kernel == svm.KernelRBF {
		m.Kernel.Parameters = []KernelParam{{Name: "gamma", Value: clf.Gamma}}
	}

	coefs := clf.DualCoefs()
	for i, sv := range clf.SupportVectors() {
		m.Support = append(m.Support, Support{
			DualCoef:      coefs[i],
			SupportVector: append([]float64(nil), sv...),
		})
	}
	for i := range scaler.Mean {
		m.NormParams = append(m.NormParams, NormParam{Mean: scaler.Mean[i], Std: scaler.Scale[i]})
	}
	return m
}

// Save writes the artifact as indented JSON. The file is written to a
// temporary sibling first and renamed into place, so a crash mid-write
// never leaves a truncated artifact behind.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads an artifact back from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return &m, nil
}
