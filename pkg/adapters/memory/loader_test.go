package memory_test

import (
	"testing"

	"github.com/aretw0/orchard/pkg/adapters/memory"
	contract "github.com/aretw0/orchard/pkg/ports/tests"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"models":  "dataModels: []",
		"machine": "stateModels: []",
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	contract.PitLoaderContractTest(t, memory.NewLoader(data), bytesData)
}
