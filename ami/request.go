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

package ami

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Architecture is the CPU architecture of a registered image.
type Architecture string

// Supported image architectures.
const (
	ArchitectureI386  Architecture = "i386"
	ArchitectureX8664 Architecture = "x86_64"
)

// VirtualizationType is the virtualization mode of a registered image.
type VirtualizationType string

// Supported virtualization types.
const (
	VirtualizationHVM         VirtualizationType = "hvm"
	VirtualizationParavirtual VirtualizationType = "paravirtual"
)

// Default wait timeouts, in seconds, matching the two call sites:
// image creation/registration and image deregistration.
const (
	DefaultCreateWaitTimeout     = 300
	DefaultDeregisterWaitTimeout = 900
)

// BlockDeviceSpec describes one entry of a block device mapping.
// DeviceName is required; everything else is optional. A NoDevice entry
// suppresses a device inherited from the source instance and must not
// carry provisioning parameters.
type BlockDeviceSpec struct {
	DeviceName          string `yaml:"device_name"`
	VolumeType          string `yaml:"volume_type,omitempty"`
	SizeGB              int32  `yaml:"size,omitempty"`
	SnapshotID          string `yaml:"snapshot_id,omitempty"`
	IOPS                int32  `yaml:"iops,omitempty"`
	Encrypted           *bool  `yaml:"encrypted,omitempty"`
	DeleteOnTermination *bool  `yaml:"delete_on_termination,omitempty"`
	NoDevice            bool   `yaml:"no_device,omitempty"`
}

// validate checks a single device spec.
func (s *BlockDeviceSpec) validate() error {
	if s.DeviceName == "" {
		return validationErrorf("device_mapping", "device name must be set for volume")
	}
	return nil
}

// toEC2 converts the spec to the SDK block device mapping entry.
func (s *BlockDeviceSpec) toEC2() ec2types.BlockDeviceMapping {
	mapping := ec2types.BlockDeviceMapping{
		DeviceName: aws.String(s.DeviceName),
	}

	if s.NoDevice {
		// An empty NoDevice string is how EC2 expresses device suppression.
		mapping.NoDevice = aws.String("")
		return mapping
	}

	ebs := &ec2types.EbsBlockDevice{}
	if s.VolumeType != "" {
		ebs.VolumeType = ec2types.VolumeType(s.VolumeType)
	}
	if s.SizeGB > 0 {
		ebs.VolumeSize = aws.Int32(s.SizeGB)
	}
	if s.SnapshotID != "" {
		ebs.SnapshotId = aws.String(s.SnapshotID)
	}
	if s.IOPS > 0 {
		ebs.Iops = aws.Int32(s.IOPS)
	}
	if s.Encrypted != nil {
		ebs.Encrypted = s.Encrypted
	}
	if s.DeleteOnTermination != nil {
		ebs.DeleteOnTermination = s.DeleteOnTermination
	}
	mapping.Ebs = ebs
	return mapping
}

// buildDeviceMappings validates the specs and converts them to SDK form.
func buildDeviceMappings(specs []BlockDeviceSpec) ([]ec2types.BlockDeviceMapping, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	mappings := make([]ec2types.BlockDeviceMapping, 0, len(specs))
	for i := range specs {
		if err := specs[i].validate(); err != nil {
			return nil, err
		}
		mappings = append(mappings, specs[i].toEC2())
	}
	return mappings, nil
}

// LaunchPermissions is the set of accounts and groups authorized to
// launch instances from an image. "all" is the only group name EC2
// currently accepts; it is passed through without client-side checks.
type LaunchPermissions struct {
	UserIDs    []string `yaml:"user_ids,omitempty" json:"user_ids"`
	GroupNames []string `yaml:"group_names,omitempty" json:"group_names"`
}

// IsZero reports whether no accounts and no groups are set.
func (p LaunchPermissions) IsZero() bool {
	return len(p.UserIDs) == 0 && len(p.GroupNames) == 0
}

// Equal compares two permission sets ignoring element order.
func (p LaunchPermissions) Equal(other LaunchPermissions) bool {
	return sameStringSet(p.UserIDs, other.UserIDs) &&
		sameStringSet(p.GroupNames, other.GroupNames)
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
		if seen[s] < 0 {
			return false
		}
	}
	return true
}

// toEC2 converts the set to SDK launch permission entries.
func (p LaunchPermissions) toEC2() []ec2types.LaunchPermission {
	perms := make([]ec2types.LaunchPermission, 0, len(p.UserIDs)+len(p.GroupNames))
	for _, id := range p.UserIDs {
		perms = append(perms, ec2types.LaunchPermission{UserId: aws.String(id)})
	}
	for _, group := range p.GroupNames {
		perms = append(perms, ec2types.LaunchPermission{Group: ec2types.PermissionGroup(group)})
	}
	return perms
}

// CreateRequest asks for an image created from a running or stopped
// instance. Name is the idempotence key: if an image with the same name
// already exists, the controller reports no change.
type CreateRequest struct {
	InstanceID     string             `yaml:"instance_id"`
	Name           string             `yaml:"name"`
	Description    string             `yaml:"description,omitempty"`
	NoReboot       bool               `yaml:"no_reboot,omitempty"`
	DeviceMappings []BlockDeviceSpec  `yaml:"device_mapping,omitempty"`
	Tags           map[string]string  `yaml:"tags,omitempty"`
	Permissions    *LaunchPermissions `yaml:"launch_permissions,omitempty"`
	Wait           bool               `yaml:"wait,omitempty"`
	WaitTimeout    int                `yaml:"wait_timeout,omitempty"` // seconds
}

// Validate checks the request before any remote call.
func (r *CreateRequest) Validate() error {
	if r.InstanceID == "" {
		return validationErrorf("instance_id", "instance_id is required for new image")
	}
	if r.Name == "" {
		return validationErrorf("name", "name parameter is required for new image")
	}
	for i := range r.DeviceMappings {
		if err := r.DeviceMappings[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *CreateRequest) waitTimeout() int {
	if r.WaitTimeout > 0 {
		return r.WaitTimeout
	}
	return DefaultCreateWaitTimeout
}

// RegisterRequest asks for an image registered from an existing source:
// a root volume snapshot, an explicit device mapping, or an S3 manifest
// location. Exactly one source must be provided.
type RegisterRequest struct {
	Name               string             `yaml:"name"`
	Description        string             `yaml:"description,omitempty"`
	Architecture       Architecture       `yaml:"architecture,omitempty"`
	VirtualizationType VirtualizationType `yaml:"virtualization_type"`
	KernelID           string             `yaml:"kernel_id,omitempty"`
	RootDeviceName     string             `yaml:"root_device_name,omitempty"`
	SnapshotID         string             `yaml:"snapshot_id,omitempty"`
	ImageLocation      string             `yaml:"image_location,omitempty"`
	SriovNetSupport    string             `yaml:"sriov_net_support,omitempty"`
	DeviceMappings     []BlockDeviceSpec  `yaml:"device_mapping,omitempty"`

	// DeleteRootVolumeOnTermination applies to the root volume built from
	// SnapshotID. Leaving volumes behind after instance termination is
	// not free.
	DeleteRootVolumeOnTermination bool `yaml:"delete_root_volume_on_termination,omitempty"`

	Tags        map[string]string  `yaml:"tags,omitempty"`
	Permissions *LaunchPermissions `yaml:"launch_permissions,omitempty"`
	Wait        bool               `yaml:"wait,omitempty"`
	WaitTimeout int                `yaml:"wait_timeout,omitempty"` // seconds
}

// Validate checks the request before any remote call.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return validationErrorf("name", "name parameter is required for new image")
	}
	if r.VirtualizationType == "" {
		return validationErrorf("virtualization_type", "virtualization_type is required for new image")
	}
	if r.VirtualizationType != VirtualizationHVM && r.VirtualizationType != VirtualizationParavirtual {
		return validationErrorf("virtualization_type", "must be either paravirtual or hvm")
	}
	if r.Architecture != "" && r.Architecture != ArchitectureX8664 && r.Architecture != ArchitectureI386 {
		return validationErrorf("architecture", "must be either x86_64 or i386")
	}

	sources := 0
	if r.SnapshotID != "" {
		sources++
	}
	if len(r.DeviceMappings) > 0 {
		sources++
	}
	if r.ImageLocation != "" {
		sources++
	}
	if sources == 0 {
		return validationErrorf("", "one of snapshot_id, device_mapping, or image_location is required for new image")
	}
	if sources > 1 {
		return validationErrorf("", "snapshot_id, device_mapping, and image_location are mutually exclusive")
	}

	if r.SnapshotID != "" && r.RootDeviceName == "" {
		return validationErrorf("root_device_name", "root_device_name is required when registering from snapshot_id")
	}
	if r.DeleteRootVolumeOnTermination && r.SnapshotID == "" {
		return validationErrorf("delete_root_volume_on_termination", "snapshot_id is required when using delete_root_volume_on_termination")
	}
	if r.SriovNetSupport != "" && r.SriovNetSupport != "simple" {
		return validationErrorf("sriov_net_support", "must be simple or not set")
	}
	for i := range r.DeviceMappings {
		if err := r.DeviceMappings[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *RegisterRequest) waitTimeout() int {
	if r.WaitTimeout > 0 {
		return r.WaitTimeout
	}
	return DefaultCreateWaitTimeout
}

// DeregisterRequest asks for an image to be removed from the registry,
// optionally deleting the snapshots its block device mapping references.
type DeregisterRequest struct {
	ImageID         string `yaml:"image_id"`
	DeleteSnapshots bool   `yaml:"delete_snapshot,omitempty"`
	Wait            bool   `yaml:"wait,omitempty"`
	WaitTimeout     int    `yaml:"wait_timeout,omitempty"` // seconds
}

// Validate checks the request before any remote call.
func (r *DeregisterRequest) Validate() error {
	if r.ImageID == "" {
		return validationErrorf("image_id", "image_id is required to deregister an image")
	}
	return nil
}

func (r *DeregisterRequest) waitTimeout() int {
	if r.WaitTimeout > 0 {
		return r.WaitTimeout
	}
	return DefaultDeregisterWaitTimeout
}

// UpdatePermissionsRequest asks for an image's launch permissions to be
// reconciled to the desired set. The reconciliation is a two-state
// toggle: a non-empty desired set is granted wholesale, an empty desired
// set revokes whatever is currently granted.
type UpdatePermissionsRequest struct {
	ImageID string            `yaml:"image_id"`
	Desired LaunchPermissions `yaml:"launch_permissions"`
}

// Validate checks the request before any remote call.
func (r *UpdatePermissionsRequest) Validate() error {
	if r.ImageID == "" {
		return validationErrorf("image_id", "image_id is required to update launch permissions")
	}
	return nil
}

// OperationMode selects which operation an ImageRequest performs.
type OperationMode string

// Recognized operation modes.
const (
	ModeCreate      OperationMode = "create"
	ModeRegister    OperationMode = "register"
	ModeDeregister  OperationMode = "deregister"
	ModePermissions OperationMode = "update-permissions"
)

// ImageRequest is the tagged union used by the declarative apply path:
// exactly one of the operation blocks must be populated, and it must
// match the mode selector.
type ImageRequest struct {
	Mode        OperationMode             `yaml:"mode"`
	Create      *CreateRequest            `yaml:"create,omitempty"`
	Register    *RegisterRequest          `yaml:"register,omitempty"`
	Deregister  *DeregisterRequest        `yaml:"deregister,omitempty"`
	Permissions *UpdatePermissionsRequest `yaml:"permissions,omitempty"`
}

// Validate checks the union shape and delegates to the selected
// operation's own validation.
func (r *ImageRequest) Validate() error {
	populated := 0
	if r.Create != nil {
		populated++
	}
	if r.Register != nil {
		populated++
	}
	if r.Deregister != nil {
		populated++
	}
	if r.Permissions != nil {
		populated++
	}
	if populated != 1 {
		return validationErrorf("mode", "exactly one operation block must be populated, got %d", populated)
	}

	switch r.Mode {
	case ModeCreate:
		if r.Create == nil {
			return validationErrorf("mode", "mode is %q but the create block is missing", r.Mode)
		}
		return r.Create.Validate()
	case ModeRegister:
		if r.Register == nil {
			return validationErrorf("mode", "mode is %q but the register block is missing", r.Mode)
		}
		return r.Register.Validate()
	case ModeDeregister:
		if r.Deregister == nil {
			return validationErrorf("mode", "mode is %q but the deregister block is missing", r.Mode)
		}
		return r.Deregister.Validate()
	case ModePermissions:
		if r.Permissions == nil {
			return validationErrorf("mode", "mode is %q but the permissions block is missing", r.Mode)
		}
		return r.Permissions.Validate()
	default:
		return validationErrorf("mode", "unknown mode %q (want create, register, deregister, or update-permissions)", r.Mode)
	}
}
