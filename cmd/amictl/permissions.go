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
	"github.com/amictl/amictl/cli"
	"github.com/amictl/amictl/logging"
)

// Permissions command options
type permissionsOptions struct {
	imageID       string
	launchUserIDs []string
	launchGroups  []string
}

var permissionsOpts = &permissionsOptions{}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Reconcile the launch permissions of an existing AMI",
	Long: `Reconcile an AMI's launch permissions to the desired set. A
non-empty desired set is granted wholesale; an empty desired set revokes
whatever is currently granted.

Examples:
  # Share an image with two accounts and make it public
  amictl permissions --image-id ami-1234abcd \
    --launch-user-ids 123456789012,210987654321 \
    --launch-group-names all

  # Revoke all launch permissions
  amictl permissions --image-id ami-1234abcd`,
	RunE: runPermissions,
}

func init() {
	permissionsCmd.Flags().StringVar(&permissionsOpts.imageID, "image-id", "", "Image whose launch permissions to update")
	permissionsCmd.Flags().StringSliceVar(&permissionsOpts.launchUserIDs, "launch-user-ids", nil, "AWS account IDs to grant launch permission to")
	permissionsCmd.Flags().StringSliceVar(&permissionsOpts.launchGroups, "launch-group-names", nil, "Permission groups to grant launch permission to (e.g. all)")
}

func runPermissions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req := &ami.UpdatePermissionsRequest{
		ImageID: permissionsOpts.imageID,
		Desired: cli.ParseLaunchPermissions(permissionsOpts.launchUserIDs, permissionsOpts.launchGroups),
	}

	controller, err := newController(cmd)
	if err != nil {
		return err
	}

	result, err := controller.UpdateLaunchPermissions(ctx, req)
	if err != nil {
		return err
	}

	logging.OutputContext(ctx, result)
	return nil
}
