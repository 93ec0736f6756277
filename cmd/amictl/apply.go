/*
Copyright © 2026 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amictl/amictl/ami"
	"github.com/amictl/amictl/logging"
)

// Apply command options
type applyOptions struct {
	file string
}

var applyOpts = &applyOptions{}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply one or more image requests from a YAML file",
	Long: `Apply image requests declared in a YAML file. Each document in the
file selects an operation through its mode field and carries the matching
operation block. Documents run in order; the first failure stops the run.

Example file:
  mode: create
  create:
    instance_id: i-1234567890abcdef0
    name: app-server-20260831
    wait: true
  ---
  mode: update-permissions
  permissions:
    image_id: ami-1234abcd
    launch_permissions:
      group_names: [all]

Examples:
  amictl apply -f images.yaml
  cat images.yaml | amictl apply -f -`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyOpts.file, "file", "f", "", "YAML file of image requests, or - for stdin")
	if err := applyCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

// loadImageRequests decodes every document of a YAML stream into image
// requests. Unknown fields are rejected so that a typoed key fails
// loudly instead of silently applying defaults.
func loadImageRequests(r io.Reader) ([]*ami.ImageRequest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var requests []*ami.ImageRequest
	for i := 0; ; i++ {
		var req ami.ImageRequest
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse document %d: %w", i+1, err)
		}
		requests = append(requests, &req)
	}
	if len(requests) == 0 {
		return nil, errors.New("no image requests found in input")
	}
	return requests, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var in io.Reader
	if applyOpts.file == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(applyOpts.file)
		if err != nil {
			return fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()
		in = f
	}

	requests, err := loadImageRequests(in)
	if err != nil {
		return err
	}

	// Validate the whole stream before touching remote state, so a bad
	// document late in the file does not leave the run half applied.
	for i, req := range requests {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
	}

	controller, err := newController(cmd)
	if err != nil {
		return err
	}

	for i, req := range requests {
		logging.DebugContext(ctx, "applying document %d of %d (mode %s)", i+1, len(requests), req.Mode)
		result, err := controller.Ensure(ctx, req)
		if result != nil && !isNilResult(result) {
			logging.OutputContext(ctx, result)
		}
		if err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
	}
	return nil
}

// isNilResult reports whether a Result interface wraps a nil pointer.
// Ensure returns typed nils from operations that fail before producing
// a result.
func isNilResult(r ami.Result) bool {
	switch v := r.(type) {
	case *ami.EnsureResult:
		return v == nil
	case *ami.DeregisterResult:
		return v == nil
	case *ami.PermissionsResult:
		return v == nil
	}
	return false
}
