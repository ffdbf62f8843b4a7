package cmd

import "testing"

func TestValidateAddr(t *testing.T) {
	valid := []string{
		"127.0.0.1:3400",
		"localhost:8080",
		":8080",
		"0.0.0.0:0",
		"[::1]:9000",
	}
	for _, addr := range valid {
		if err := validateAddr(addr); err != nil {
			t.Errorf("validateAddr(%q) = %v, want nil", addr, err)
		}
	}

	invalid := []string{
		"",
		"127.0.0.1",
		"localhost:",
		"localhost:abc",
		"localhost:70000",
		"localhost:-1",
	}
	for _, addr := range invalid {
		if err := validateAddr(addr); err == nil {
			t.Errorf("validateAddr(%q) = nil, want error", addr)
		}
	}
}
