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

// Register command options
type registerOptions struct {
	name               string
	description        string
	architecture       string
	virtualizationType string
	kernelID           string
	rootDeviceName     string
	snapshotID         string
	imageLocation      string
	sriovNetSupport    string
	deviceMappings     []string
	deleteRootVolume   bool
	tags               []string
	launchUserIDs      []string
	launchGroups       []string
	wait               bool
	waitTimeout        int
}

var registerOpts = &registerOptions{}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register an AMI from a snapshot, device mapping, or S3 manifest",
	Long: `Register an AMI from an existing source: a root volume snapshot, an
explicit block device mapping, or an S3 manifest location. Exactly one
source must be provided. The name is the idempotence key.

Examples:
  # Register from a root volume snapshot
  amictl register --name nat-server --virtualization-type hvm \
    --snapshot-id snap-1234 --root-device-name /dev/sda1

  # Register from an explicit device mapping
  amictl register --name nat-server --virtualization-type paravirtual \
    --device-mapping "device_name=/dev/sda1,size=10,snapshot_id=snap-1"

  # Register from an S3 manifest
  amictl register --name s3-backed --virtualization-type hvm \
    --image-location mybucket/image.manifest.xml`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerOpts.name, "name", "", "Name for the new image")
	registerCmd.Flags().StringVar(&registerOpts.description, "description", "", "Description for the new image")
	registerCmd.Flags().StringVar(&registerOpts.architecture, "architecture", "", "Image architecture (i386, x86_64)")
	registerCmd.Flags().StringVar(&registerOpts.virtualizationType, "virtualization-type", "", "Virtualization type (hvm, paravirtual)")
	registerCmd.Flags().StringVar(&registerOpts.kernelID, "kernel-id", "", "Kernel ID (paravirtual images)")
	registerCmd.Flags().StringVar(&registerOpts.rootDeviceName, "root-device-name", "", "Root device name (required with --snapshot-id)")
	registerCmd.Flags().StringVar(&registerOpts.snapshotID, "snapshot-id", "", "Root volume snapshot to register from")
	registerCmd.Flags().StringVar(&registerOpts.imageLocation, "image-location", "", "S3 manifest location to register from")
	registerCmd.Flags().StringVar(&registerOpts.sriovNetSupport, "sriov-net-support", "", "Enable enhanced networking (simple)")
	registerCmd.Flags().StringArrayVar(&registerOpts.deviceMappings, "device-mapping", nil, "Block device mapping (device_name=...,size=...,...), repeatable")
	registerCmd.Flags().BoolVar(&registerOpts.deleteRootVolume, "delete-root-volume-on-termination", false, "Delete the root volume on instance termination (with --snapshot-id)")
	registerCmd.Flags().StringArrayVarP(&registerOpts.tags, "tag", "t", nil, "Tag to apply (key=value), repeatable")
	registerCmd.Flags().StringSliceVar(&registerOpts.launchUserIDs, "launch-user-ids", nil, "Account IDs granted launch permission")
	registerCmd.Flags().StringSliceVar(&registerOpts.launchGroups, "launch-group-names", nil, "Groups granted launch permission (e.g. all)")
	registerCmd.Flags().BoolVar(&registerOpts.wait, "wait", false, "Wait for the image to become available")
	registerCmd.Flags().IntVar(&registerOpts.waitTimeout, "wait-timeout", 0, "Seconds to wait for availability (default 300)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tags, err := cli.ParseKeyValuePairs(registerOpts.tags)
	if err != nil {
		return err
	}
	mappings, err := cli.ParseDeviceMappings(registerOpts.deviceMappings)
	if err != nil {
		return err
	}

	applyWaitDefaults(cmd, &registerOpts.wait, &registerOpts.waitTimeout,
		configFromContext(cmd).Defaults.CreateWaitTimeout)

	req := &ami.RegisterRequest{
		Name:                          registerOpts.name,
		Description:                   registerOpts.description,
		Architecture:                  ami.Architecture(registerOpts.architecture),
		VirtualizationType:            ami.VirtualizationType(registerOpts.virtualizationType),
		KernelID:                      registerOpts.kernelID,
		RootDeviceName:                registerOpts.rootDeviceName,
		SnapshotID:                    registerOpts.snapshotID,
		ImageLocation:                 registerOpts.imageLocation,
		SriovNetSupport:               registerOpts.sriovNetSupport,
		DeviceMappings:                mappings,
		DeleteRootVolumeOnTermination: registerOpts.deleteRootVolume,
		Tags:                          tags,
		Wait:                          registerOpts.wait,
		WaitTimeout:                   registerOpts.waitTimeout,
	}
	if perms := cli.ParseLaunchPermissions(registerOpts.launchUserIDs, registerOpts.launchGroups); !perms.IsZero() {
		req.Permissions = &perms
	}

	controller, err := newController(cmd)
	if err != nil {
		return err
	}

	result, err := controller.Register(ctx, req)
	if err != nil {
		return err
	}

	logging.OutputContext(ctx, result)
	return nil
}
