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

// Package cli turns raw command-line flag values into the request types
// the ami package consumes. Parsing is pure string work; request-level
// validation belongs to the ami package.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/amictl/amictl/ami"
)

// ParseKeyValue parses a single key=value string.
// Keys and values are trimmed of surrounding whitespace; the first equals
// sign splits, so values may contain equals signs.
func ParseKeyValue(input string) (string, string, error) {
	parts := strings.SplitN(input, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid format: %s (expected key=value)", input)
	}

	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmt.Errorf("invalid format: %s (key must not be empty)", input)
	}

	return key, value, nil
}

// ParseKeyValuePairs parses a list of key=value strings into a map.
// It always returns a non-nil map.
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, err := ParseKeyValue(pair)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

// Recognized device mapping fields for ParseDeviceMapping.
const (
	deviceFieldName                = "device_name"
	deviceFieldVolumeType          = "volume_type"
	deviceFieldSize                = "size"
	deviceFieldSnapshotID          = "snapshot_id"
	deviceFieldIOPS                = "iops"
	deviceFieldEncrypted           = "encrypted"
	deviceFieldDeleteOnTermination = "delete_on_termination"
	deviceFieldNoDevice            = "no_device"
)

// ParseDeviceMapping parses one device mapping flag value of the form
// "device_name=/dev/sdb,size=40,volume_type=gp3". Unknown fields are
// rejected so typos surface instead of silently vanishing.
func ParseDeviceMapping(input string) (ami.BlockDeviceSpec, error) {
	var spec ami.BlockDeviceSpec

	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, err := ParseKeyValue(field)
		if err != nil {
			return spec, fmt.Errorf("invalid device mapping field %q: %w", field, err)
		}

		switch key {
		case deviceFieldName:
			spec.DeviceName = value
		case deviceFieldVolumeType:
			spec.VolumeType = value
		case deviceFieldSnapshotID:
			spec.SnapshotID = value
		case deviceFieldSize:
			size, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return spec, fmt.Errorf("invalid device mapping size %q: %w", value, err)
			}
			spec.SizeGB = int32(size)
		case deviceFieldIOPS:
			iops, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return spec, fmt.Errorf("invalid device mapping iops %q: %w", value, err)
			}
			spec.IOPS = int32(iops)
		case deviceFieldEncrypted:
			encrypted, err := strconv.ParseBool(value)
			if err != nil {
				return spec, fmt.Errorf("invalid device mapping encrypted value %q: %w", value, err)
			}
			spec.Encrypted = aws.Bool(encrypted)
		case deviceFieldDeleteOnTermination:
			deleteOnTermination, err := strconv.ParseBool(value)
			if err != nil {
				return spec, fmt.Errorf("invalid device mapping delete_on_termination value %q: %w", value, err)
			}
			spec.DeleteOnTermination = aws.Bool(deleteOnTermination)
		case deviceFieldNoDevice:
			noDevice, err := strconv.ParseBool(value)
			if err != nil {
				return spec, fmt.Errorf("invalid device mapping no_device value %q: %w", value, err)
			}
			spec.NoDevice = noDevice
		default:
			return spec, fmt.Errorf("unknown device mapping field %q", key)
		}
	}

	if spec.DeviceName == "" {
		return spec, fmt.Errorf("device mapping %q must set device_name", input)
	}

	return spec, nil
}

// ParseDeviceMappings parses repeated device mapping flag values.
func ParseDeviceMappings(inputs []string) ([]ami.BlockDeviceSpec, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	specs := make([]ami.BlockDeviceSpec, 0, len(inputs))
	for _, input := range inputs {
		spec, err := ParseDeviceMapping(input)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ParseLaunchPermissions builds a launch permission set from the
// comma-separated --launch-user-ids and --launch-group-names flag values.
func ParseLaunchPermissions(userIDs, groupNames []string) ami.LaunchPermissions {
	return ami.LaunchPermissions{
		UserIDs:    splitAndTrim(userIDs),
		GroupNames: splitAndTrim(groupNames),
	}
}

// splitAndTrim expands comma-separated entries and drops empty values.
func splitAndTrim(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
