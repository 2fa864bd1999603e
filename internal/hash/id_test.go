package hash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestID_DistinctIdentifiers(t *testing.T) {
	seen := make(map[uint64]string, 4096)
	for i := range 4096 {
		usi := fmt.Sprintf("usi%d", i)
		id := ID(usi)
		prev, dup := seen[id]
		require.False(t, dup, "%s collides with %s", usi, prev)
		seen[id] = usi
	}
}
