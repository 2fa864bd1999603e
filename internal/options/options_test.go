package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type openConfig struct {
	tdxPath  string
	encoding string
	mmap     bool
}

func withTDXPath(path string) *Func[*openConfig] {
	return New(func(c *openConfig) error {
		if path == "" {
			return errors.New("empty TDX path")
		}
		c.tdxPath = path

		return nil
	})
}

func withMmap(enabled bool) *Func[*openConfig] {
	return NoError(func(c *openConfig) {
		c.mmap = enabled
	})
}

func TestApply(t *testing.T) {
	cfg := &openConfig{encoding: "utf-8"}

	err := Apply[*openConfig](cfg, withTDXPath("/data/run.tdx"), withMmap(true))
	require.NoError(t, err)
	require.Equal(t, "/data/run.tdx", cfg.tdxPath)
	require.True(t, cfg.mmap)
	require.Equal(t, "utf-8", cfg.encoding)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &openConfig{}

	err := Apply[*openConfig](cfg, withMmap(true), withTDXPath(""), withMmap(false))
	require.EqualError(t, err, "empty TDX path")
	require.True(t, cfg.mmap, "options after the failing one must not run")
}

func TestApply_SkipsNil(t *testing.T) {
	cfg := &openConfig{}

	var nilOpt Option[*openConfig]
	require.NoError(t, Apply(cfg, nilOpt, Option[*openConfig](withMmap(true))))
	require.True(t, cfg.mmap)
}

func TestApply_NoOptions(t *testing.T) {
	cfg := &openConfig{encoding: "latin1"}
	require.NoError(t, Apply(cfg))
	require.Equal(t, "latin1", cfg.encoding)
}
