package util

import (
	"bufio"
	"errors"
	"io/ioutil"
	"os"
	"time"
)

// ---------------------
// ----- Functions -----
// ---------------------

// ReadSource reads False source code from a file or stdin.
// If the Options structure holds a path for Src the file is opened and read.
// Otherwise the function waits a short period for input on stdin; if none
// arrives in time, an error is returned.
//
// Unlike the parallel assembler backend this module was grounded on, the
// compiler that consumes this source string parses it with a single
// sequential pass, so there is no writer fan-in to coordinate here.
func ReadSource(opt Options) (string, error) {
	if len(opt.Src) > 0 {
		b, err := ioutil.ReadFile(opt.Src)
		return string(b), err
	}

	c := make(chan string)
	cerr := make(chan error)

	// Concurrently wait for input on stdin.
	go func(c chan string, cerr chan error) {
		defer close(c)
		defer close(cerr)
		reader := bufio.NewReader(os.Stdin)
		b, err := ioutil.ReadAll(reader)
		if err == nil {
			c <- string(b)
		} else {
			cerr <- err
		}
	}(c, cerr)

	// Select between input from stdin or timer expiry.
	select {
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("expected input from stdin, got none")
	case s := <-c:
		return s, nil
	case err := <-cerr:
		return "", err
	}
}

// OpenOutput opens the Options structure's output path for writing, creating
// it if necessary. If no output path was given, stdout is returned and the
// returned close function is a no-op.
func OpenOutput(opt Options) (f *os.File, closeFn func() error, err error) {
	if len(opt.Out) == 0 {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err = os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// DisplayName returns the name used in diagnostics for the Options
// structure's source path, substituting "<stdin>" when none was given.
func DisplayName(opt Options) string {
	if len(opt.Src) > 0 {
		return opt.Src
	}
	return "<stdin>"
}
