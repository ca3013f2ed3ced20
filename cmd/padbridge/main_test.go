package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUserConfig(t *testing.T) {
	t.Setenv("PADBRIDGE_CONFIG", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "equals", args: []string{"run", "--config=/tmp/a.yaml"}, want: "/tmp/a.yaml"},
		{name: "separate", args: []string{"--config", "b.toml", "run"}, want: "b.toml"},
		{name: "dangling", args: []string{"run", "--config"}, want: ""},
		{name: "none", args: []string{"run"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findUserConfig(tt.args))
		})
	}
}

func TestFindUserConfigEnv(t *testing.T) {
	t.Setenv("PADBRIDGE_CONFIG", "/etc/padbridge/custom.json")
	assert.Equal(t, "/etc/padbridge/custom.json", findUserConfig(nil))
	assert.Equal(t, "flag.json", findUserConfig([]string{"--config=flag.json"}))
}

type recordCloser struct {
	name   string
	closed *[]string
}

func (c recordCloser) Close() error {
	*c.closed = append(*c.closed, c.name)
	return nil
}

func TestFinishClosesBeforeFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "failure", err: errors.New("boom")},
		{name: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []string
			closers := []io.Closer{
				recordCloser{name: "log", closed: &events},
				recordCloser{name: "raw", closed: &events},
			}
			finish(tt.err, closers, func(err error, _ ...any) {
				events = append(events, "fatal")
				assert.Equal(t, tt.err, err)
			})
			assert.Equal(t, []string{"log", "raw", "fatal"}, events)
		})
	}
}
