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

// ImageState is the lifecycle state of an image as observed remotely.
type ImageState string

// Image lifecycle states the controller cares about.
const (
	ImageStatePending      ImageState = "pending"
	ImageStateAvailable    ImageState = "available"
	ImageStateFailed       ImageState = "failed"
	ImageStateDeregistered ImageState = "deregistered"
)

// BlockDevice is one observed entry of an image's block device mapping.
type BlockDevice struct {
	DeviceName          string `json:"device_name"`
	SizeGB              int32  `json:"size"`
	SnapshotID          string `json:"snapshot_id,omitempty"`
	VolumeType          string `json:"volume_type,omitempty"`
	Encrypted           bool   `json:"encrypted"`
	DeleteOnTermination bool   `json:"delete_on_termination"`
}

// ImageRecord is the observed remote state of an image.
type ImageRecord struct {
	ImageID            string            `json:"image_id"`
	Name               string            `json:"name,omitempty"`
	State              ImageState        `json:"state"`
	Architecture       string            `json:"architecture,omitempty"`
	BlockDevices       []BlockDevice     `json:"block_device_mapping"`
	CreationDate       string            `json:"creation_date,omitempty"`
	Description        string            `json:"description,omitempty"`
	Hypervisor         string            `json:"hypervisor,omitempty"`
	Public             bool              `json:"is_public"`
	Location           string            `json:"location,omitempty"`
	OwnerID            string            `json:"owner_id,omitempty"`
	Platform           string            `json:"platform,omitempty"`
	RootDeviceName     string            `json:"root_device_name,omitempty"`
	RootDeviceType     string            `json:"root_device_type,omitempty"`
	Tags               map[string]string `json:"tags,omitempty"`
	VirtualizationType string            `json:"virtualization_type,omitempty"`
}

// newImageRecord converts an SDK image into the controller's record form.
func newImageRecord(img *ec2types.Image) *ImageRecord {
	if img == nil {
		return nil
	}

	record := &ImageRecord{
		ImageID:            aws.ToString(img.ImageId),
		Name:               aws.ToString(img.Name),
		State:              ImageState(img.State),
		Architecture:       string(img.Architecture),
		BlockDevices:       blockDevicesFromImage(img),
		CreationDate:       aws.ToString(img.CreationDate),
		Description:        aws.ToString(img.Description),
		Hypervisor:         string(img.Hypervisor),
		Public:             aws.ToBool(img.Public),
		Location:           aws.ToString(img.ImageLocation),
		OwnerID:            aws.ToString(img.OwnerId),
		Platform:           string(img.Platform),
		RootDeviceName:     aws.ToString(img.RootDeviceName),
		RootDeviceType:     string(img.RootDeviceType),
		Tags:               tagsToMap(img.Tags),
		VirtualizationType: string(img.VirtualizationType),
	}

	return record
}

// blockDevicesFromImage extracts the EBS entries of an image's block
// device mapping. Instance-store (virtual) devices carry no EBS block
// and are skipped, matching the fields the record exposes.
func blockDevicesFromImage(img *ec2types.Image) []BlockDevice {
	var devices []BlockDevice
	for _, mapping := range img.BlockDeviceMappings {
		if mapping.Ebs == nil {
			continue
		}
		devices = append(devices, BlockDevice{
			DeviceName:          aws.ToString(mapping.DeviceName),
			SizeGB:              aws.ToInt32(mapping.Ebs.VolumeSize),
			SnapshotID:          aws.ToString(mapping.Ebs.SnapshotId),
			VolumeType:          string(mapping.Ebs.VolumeType),
			Encrypted:           aws.ToBool(mapping.Ebs.Encrypted),
			DeleteOnTermination: aws.ToBool(mapping.Ebs.DeleteOnTermination),
		})
	}
	return devices
}

// snapshotIDs returns the snapshot references of the record's block
// device mapping. Used to capture snapshots before deregistration makes
// the mapping unavailable.
func (r *ImageRecord) snapshotIDs() []string {
	var ids []string
	for _, device := range r.BlockDevices {
		if device.SnapshotID != "" {
			ids = append(ids, device.SnapshotID)
		}
	}
	return ids
}

// tagsToMap flattens SDK tag pairs into a map.
func tagsToMap(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	result := make(map[string]string, len(tags))
	for _, tag := range tags {
		result[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return result
}

// tagsFromMap converts a tag map into SDK tag pairs.
func tagsFromMap(tags map[string]string) []ec2types.Tag {
	result := make([]ec2types.Tag, 0, len(tags))
	for key, value := range tags {
		result = append(result, ec2types.Tag{
			Key:   aws.String(key),
			Value: aws.String(value),
		})
	}
	return result
}
