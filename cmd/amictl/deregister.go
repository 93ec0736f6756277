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
	"github.com/spf13/cobra"

	"github.com/amictl/amictl/ami"
	"github.com/amictl/amictl/logging"
)

// Deregister command options
type deregisterOptions struct {
	imageID         string
	deleteSnapshots bool
	wait            bool
	waitTimeout     int
}

var deregisterOpts = &deregisterOptions{}

var deregisterCmd = &cobra.Command{
	Use:   "deregister",
	Short: "Deregister an AMI, optionally deleting its snapshots",
	Long: `Deregister an AMI. Deregistering an image that does not exist, or
that was already deregistered, is a successful no-op.

Examples:
  # Deregister an image
  amictl deregister --image-id ami-1234abcd

  # Deregister and delete the backing snapshots, waiting until gone
  amictl deregister --image-id ami-1234abcd --delete-snapshot --wait`,
	RunE: runDeregister,
}

func init() {
	deregisterCmd.Flags().StringVar(&deregisterOpts.imageID, "image-id", "", "Image to deregister")
	deregisterCmd.Flags().BoolVar(&deregisterOpts.deleteSnapshots, "delete-snapshot", false, "Delete the snapshots referenced by the image")
	deregisterCmd.Flags().BoolVar(&deregisterOpts.wait, "wait", false, "Wait until the image is no longer retrievable")
	deregisterCmd.Flags().IntVar(&deregisterOpts.waitTimeout, "wait-timeout", 0, "Seconds to wait for deregistration (default 900)")
}

func runDeregister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	applyWaitDefaults(cmd, &deregisterOpts.wait, &deregisterOpts.waitTimeout,
		configFromContext(cmd).Defaults.DeregisterWaitTimeout)

	req := &ami.DeregisterRequest{
		ImageID:         deregisterOpts.imageID,
		DeleteSnapshots: deregisterOpts.deleteSnapshots,
		Wait:            deregisterOpts.wait,
		WaitTimeout:     deregisterOpts.waitTimeout,
	}

	controller, err := newController(cmd)
	if err != nil {
		return err
	}

	result, err := controller.Deregister(ctx, req)
	if result != nil {
		// A snapshot deletion failure still reports which snapshots
		// were targeted before the error.
		logging.OutputContext(ctx, result)
	}
	return err
}
