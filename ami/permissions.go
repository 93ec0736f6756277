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
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/amictl/amictl/logging"
)

// PermissionsResult is the outcome of a launch permission update,
// carrying the permission sets observed before and in effect after the
// operation.
type PermissionsResult struct {
	Changed bool              `json:"changed"`
	Message string            `json:"msg"`
	Before  LaunchPermissions `json:"launch_permissions_before"`
	After   LaunchPermissions `json:"launch_permissions"`
}

// DidChange reports whether the operation modified remote state.
func (r *PermissionsResult) DidChange() bool { return r.Changed }

// UpdateLaunchPermissions reconciles an image's launch permissions to
// the desired set. The reconciliation is deliberately coarse: a
// non-empty desired set is granted wholesale, an empty desired set
// revokes whatever is currently granted. Individual accounts are never
// added or removed incrementally.
func (c *Controller) UpdateLaunchPermissions(ctx context.Context, req *UpdatePermissionsRequest) (*PermissionsResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, outcome, err := c.fetchImage(ctx, req.ImageID)
	if err != nil {
		return nil, err
	}
	if outcome != imageFound {
		return nil, &RemoteAPIError{
			Op:         "update launch permissions",
			Message:    fmt.Sprintf("image %s does not exist", req.ImageID),
			ResourceID: req.ImageID,
		}
	}

	current, err := c.getLaunchPermissions(ctx, req.ImageID)
	if err != nil {
		return nil, err
	}

	if current.Equal(req.Desired) {
		return &PermissionsResult{
			Changed: false,
			Message: "AMI not updated",
			Before:  current,
			After:   current,
		}, nil
	}

	switch {
	case !req.Desired.IsZero():
		logging.InfoContext(ctx, "granting launch permissions on image %s", req.ImageID)
		_, err := c.clients.EC2.ModifyImageAttribute(ctx, &ec2.ModifyImageAttributeInput{
			ImageId: aws.String(req.ImageID),
			LaunchPermission: &ec2types.LaunchPermissionModifications{
				Add: req.Desired.toEC2(),
			},
		})
		if err != nil {
			remote := wrapRemote("set launch permissions", err)
			remote.ResourceID = req.ImageID
			return nil, remote
		}
		return &PermissionsResult{
			Changed: true,
			Message: "AMI launch permissions updated",
			Before:  current,
			After:   req.Desired,
		}, nil

	case !current.IsZero():
		logging.InfoContext(ctx, "revoking launch permissions on image %s", req.ImageID)
		_, err := c.clients.EC2.ModifyImageAttribute(ctx, &ec2.ModifyImageAttributeInput{
			ImageId: aws.String(req.ImageID),
			LaunchPermission: &ec2types.LaunchPermissionModifications{
				Remove: current.toEC2(),
			},
		})
		if err != nil {
			remote := wrapRemote("remove launch permissions", err)
			remote.ResourceID = req.ImageID
			return nil, remote
		}
		return &PermissionsResult{
			Changed: true,
			Message: "AMI launch permissions updated",
			Before:  current,
			After:   LaunchPermissions{},
		}, nil
	}

	// Both sets empty; nothing to grant and nothing to revoke.
	return &PermissionsResult{
		Changed: false,
		Message: "AMI not updated",
		Before:  current,
		After:   current,
	}, nil
}

// getLaunchPermissions fetches the launch permission attribute of an
// image and flattens it into account and group sets.
func (c *Controller) getLaunchPermissions(ctx context.Context, imageID string) (LaunchPermissions, error) {
	out, err := c.clients.EC2.DescribeImageAttribute(ctx, &ec2.DescribeImageAttributeInput{
		ImageId:   aws.String(imageID),
		Attribute: ec2types.ImageAttributeNameLaunchPermission,
	})
	if err != nil {
		return LaunchPermissions{}, wrapRemote("describe launch permissions", err)
	}

	var perms LaunchPermissions
	for _, entry := range out.LaunchPermissions {
		if entry.UserId != nil {
			perms.UserIDs = append(perms.UserIDs, aws.ToString(entry.UserId))
		}
		if entry.Group != "" {
			perms.GroupNames = append(perms.GroupNames, string(entry.Group))
		}
	}
	return perms, nil
}
