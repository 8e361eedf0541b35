package util

import (
	"testing"

	"github.com/arkosec/responder/model"
	"github.com/stretchr/testify/require"
)

func TestJsonCodec(t *testing.T) {
	codec := JsonCodec[model.Execution]{}

	data, err := codec.Marshal(model.Execution{Id: "exec-1", Status: model.EXECUTION_FAILED, Errors: []string{"timeout"}})
	require.NoError(t, err)

	exec, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, "exec-1", exec.Id)
	require.Equal(t, model.EXECUTION_FAILED, exec.Status)
	require.Equal(t, []string{"timeout"}, exec.Errors)

	_, err = codec.Unmarshal([]byte("not-json"))
	require.Error(t, err)
}
