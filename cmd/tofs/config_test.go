package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "defaults",
			want: DefaultConfig(),
		},
		{
			name: "file",
			yaml: "image: disk.fd\ntracks: 40\nextended: true\nlogLevel: debug\n",
			want: func() Config {
				c := DefaultConfig()
				c.Image = "disk.fd"
				c.Tracks = 40
				c.Extended = true
				c.LogLevel = LogLevel(logrus.DebugLevel)
				return c
			}(),
		},
		{
			name: "environment overrides the file",
			yaml: "image: disk.fd\nbuffers: 4\n",
			env:  map[string]string{"TOFS_IMAGE": "other.fd", "TOFS_CASE_SENSITIVE": "true"},
			want: func() Config {
				c := DefaultConfig()
				c.Image = "other.fd"
				c.Buffers = 4
				c.CaseSensitive = true
				return c
			}(),
		},
		{
			name:    "unknown field",
			yaml:    "imag: disk.fd\n",
			wantErr: true,
		},
		{
			name:    "invalid log level",
			yaml:    "logLevel: loud\n",
			wantErr: true,
		},
		{
			name:    "invalid environment",
			env:     map[string]string{"TOFS_TRACKS": "many"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := afero.NewMemMapFs()
			path := "missing.yaml"
			if tt.yaml != "" {
				path = "tofs.yaml"
				if err := afero.WriteFile(afs, path, []byte(tt.yaml), 0644); err != nil {
					t.Fatal(err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := LoadConfig(afs, path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if *got != tt.want {
				t.Errorf("LoadConfig() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Image = "disk.fd"

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "no image", modify: func(c *Config) { c.Image = "" }, wantErr: true},
		{name: "no buffers", modify: func(c *Config) { c.Buffers = 0 }, wantErr: true},
		{name: "invalid geometry", modify: func(c *Config) { c.SectorsPerTrack = 7 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
