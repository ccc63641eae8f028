package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string            `json:"name"`
	Size  int64             `json:"size"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

func TestCodec_Roundtrip(t *testing.T) {
	in := sample{
		Name:  "dataset.bin",
		Size:  1 << 30,
		Attrs: map[string]string{"origin": "ingest-7"},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		data, err := c.Marshal(in)
		require.NoError(t, err, c.Name())

		var out sample
		require.NoError(t, c.Unmarshal(data, &out), c.Name())
		assert.Equal(t, in, out, c.Name())
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, map[string]int{"a": 1})
	assert.JSONEq(t, `{"a":1}`, string(data))

	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}
