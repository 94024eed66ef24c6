package main

import "testing"

func TestMainRunsCLI(t *testing.T) {
	orig := execute
	defer func() { execute = orig }()

	called := false
	execute = func() { called = true }

	main()

	if !called {
		t.Fatal("expected main to invoke the CLI")
	}
}
