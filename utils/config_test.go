package utils

import "testing"

func TestParseArchitecture(t *testing.T) {
	arch, err := ParseArchitecture("784 128 10")
	if err != nil {
		t.Fatalf("ParseArchitecture: %v", err)
	}
	if len(arch) != 3 || arch[0] != 784 || arch[1] != 128 || arch[2] != 10 {
		t.Errorf("arch = %v, want [784 128 10]", arch)
	}

	if _, err := ParseArchitecture("4 x 2"); err == nil {
		t.Error("want error for non-numeric width")
	}
	if _, err := ParseArchitecture("   "); err == nil {
		t.Error("want error for empty architecture")
	}
}

func TestValidateConfig(t *testing.T) {
	good := func() *Config {
		return &Config{
			Architecture: []int{4, 3, 2},
			BatchSize:    8,
			LearnRate:    0.1,
			MaxEpochs:    100,
		}
	}
	if err := ValidateConfig(good()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"single layer", func(c *Config) { c.Architecture = []int{4} }},
		{"zero width", func(c *Config) { c.Architecture = []int{4, 0} }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"negative rate", func(c *Config) { c.LearnRate = -1 }},
		{"zero epochs", func(c *Config) { c.MaxEpochs = 0 }},
	}
	for _, tc := range cases {
		c := good()
		tc.mutate(c)
		if err := ValidateConfig(c); err == nil {
			t.Errorf("%s: want error", tc.name)
		}
	}
}
