package util

import "encoding/json"

// Codec serializes domain records for the storage layer. Records carry
// the same json tags the REST surface uses, so one wire shape serves
// both.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

type JsonCodec[T any] struct{}

var _ Codec[struct{}] = JsonCodec[struct{}]{}

func (JsonCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JsonCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
