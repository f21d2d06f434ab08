// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"fmt"
	"os"
)

// fileValidator checks that a path names a readable regular file.
// An empty path is accepted; use NewEmptyStringValidator to require one.
type fileValidator struct {
	fieldName string
	path      string
}

// NewFileValidator returns a Validator for key, certificate and bundle paths.
func NewFileValidator(fieldName, path string) Validator {
	return &fileValidator{fieldName: fieldName, path: path}
}

// Validate implements Validator.
func (v *fileValidator) Validate() error {
	if v.path == "" {
		return nil
	}

	info, err := os.Stat(v.path)
	if err != nil {
		return fmt.Errorf("the [%s] file is not readable: %w", v.fieldName, err)
	}

	if info.IsDir() {
		return fmt.Errorf("the [%s] path (%s) is a directory", v.fieldName, v.path)
	}

	return nil
}
