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

// Create command options
type createOptions struct {
	instanceID     string
	name           string
	description    string
	noReboot       bool
	deviceMappings []string
	tags           []string
	launchUserIDs  []string
	launchGroups   []string
	wait           bool
	waitTimeout    int
}

var createOpts = &createOptions{}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an AMI from an EC2 instance",
	Long: `Create an AMI from a running or stopped EC2 instance. The name is
the idempotence key: if an image with the same name already exists,
nothing is created and the existing image is reported unchanged.

Examples:
  # Create an image and wait for it to become available
  amictl create --instance-id i-abcd1234 --name nightly --wait

  # Create without rebooting the instance, with tags
  amictl create --instance-id i-abcd1234 --name nightly \
    --no-reboot --tag env=prod --tag team=infra

  # Override a block device of the source instance
  amictl create --instance-id i-abcd1234 --name nightly \
    --device-mapping "device_name=/dev/sdb,size=100,volume_type=gp3"`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createOpts.instanceID, "instance-id", "", "Source EC2 instance ID")
	createCmd.Flags().StringVar(&createOpts.name, "name", "", "Name for the new image")
	createCmd.Flags().StringVar(&createOpts.description, "description", "", "Description for the new image")
	createCmd.Flags().BoolVar(&createOpts.noReboot, "no-reboot", false, "Do not reboot the instance before imaging")
	createCmd.Flags().StringArrayVar(&createOpts.deviceMappings, "device-mapping", nil, "Block device mapping (device_name=...,size=...,...), repeatable")
	createCmd.Flags().StringArrayVarP(&createOpts.tags, "tag", "t", nil, "Tag to apply (key=value), repeatable")
	createCmd.Flags().StringSliceVar(&createOpts.launchUserIDs, "launch-user-ids", nil, "Account IDs granted launch permission")
	createCmd.Flags().StringSliceVar(&createOpts.launchGroups, "launch-group-names", nil, "Groups granted launch permission (e.g. all)")
	createCmd.Flags().BoolVar(&createOpts.wait, "wait", false, "Wait for the image to become available")
	createCmd.Flags().IntVar(&createOpts.waitTimeout, "wait-timeout", 0, "Seconds to wait for availability (default 300)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tags, err := cli.ParseKeyValuePairs(createOpts.tags)
	if err != nil {
		return err
	}
	mappings, err := cli.ParseDeviceMappings(createOpts.deviceMappings)
	if err != nil {
		return err
	}

	applyWaitDefaults(cmd, &createOpts.wait, &createOpts.waitTimeout,
		configFromContext(cmd).Defaults.CreateWaitTimeout)

	req := &ami.CreateRequest{
		InstanceID:     createOpts.instanceID,
		Name:           createOpts.name,
		Description:    createOpts.description,
		NoReboot:       createOpts.noReboot,
		DeviceMappings: mappings,
		Tags:           tags,
		Wait:           createOpts.wait,
		WaitTimeout:    createOpts.waitTimeout,
	}
	if perms := cli.ParseLaunchPermissions(createOpts.launchUserIDs, createOpts.launchGroups); !perms.IsZero() {
		req.Permissions = &perms
	}

	controller, err := newController(cmd)
	if err != nil {
		return err
	}

	result, err := controller.Create(ctx, req)
	if err != nil {
		return err
	}

	logging.OutputContext(ctx, result)
	return nil
}
