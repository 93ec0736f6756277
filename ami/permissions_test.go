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
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// permissionAttribute returns a describe-attribute output carrying the
// given launch permission entries.
func permissionAttribute(userIDs []string, groups []string) *ec2.DescribeImageAttributeOutput {
	var entries []ec2types.LaunchPermission
	for _, id := range userIDs {
		entries = append(entries, ec2types.LaunchPermission{UserId: aws.String(id)})
	}
	for _, group := range groups {
		entries = append(entries, ec2types.LaunchPermission{Group: ec2types.PermissionGroup(group)})
	}
	return &ec2.DescribeImageAttributeOutput{LaunchPermissions: entries}
}

func TestUpdateLaunchPermissionsGrants(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()
	var modifyInput *ec2.ModifyImageAttributeInput

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return availableImage("ami-1234abcd", "shared"), nil
	}
	mock.DescribeImageAttributeFunc = func(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error) {
		assert.Equal(t, ec2types.ImageAttributeNameLaunchPermission, params.Attribute)
		return permissionAttribute(nil, nil), nil
	}
	mock.ModifyImageAttributeFunc = func(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error) {
		modifyInput = params
		return &ec2.ModifyImageAttributeOutput{}, nil
	}

	desired := LaunchPermissions{
		UserIDs:    []string{"123456789012", "210987654321"},
		GroupNames: []string{"all"},
	}
	result, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-1234abcd",
		Desired: desired,
	})
	require.NoError(t, err)
	assert.True(t, result.DidChange())
	assert.Equal(t, "AMI launch permissions updated", result.Message)
	assert.True(t, result.Before.IsZero())
	assert.True(t, result.After.Equal(desired))

	// The whole desired set is granted in one Add; nothing is removed.
	require.NotNil(t, modifyInput)
	assert.Equal(t, "ami-1234abcd", aws.ToString(modifyInput.ImageId))
	require.NotNil(t, modifyInput.LaunchPermission)
	require.Len(t, modifyInput.LaunchPermission.Add, 3)
	assert.Empty(t, modifyInput.LaunchPermission.Remove)
	assert.Equal(t, "123456789012", aws.ToString(modifyInput.LaunchPermission.Add[0].UserId))
	assert.Equal(t, "210987654321", aws.ToString(modifyInput.LaunchPermission.Add[1].UserId))
	assert.Equal(t, ec2types.PermissionGroupAll, modifyInput.LaunchPermission.Add[2].Group)
}

func TestUpdateLaunchPermissionsRevokes(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()
	var modifyInput *ec2.ModifyImageAttributeInput

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return availableImage("ami-1234abcd", "shared"), nil
	}
	mock.DescribeImageAttributeFunc = func(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error) {
		return permissionAttribute([]string{"123456789012"}, []string{"all"}), nil
	}
	mock.ModifyImageAttributeFunc = func(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error) {
		modifyInput = params
		return &ec2.ModifyImageAttributeOutput{}, nil
	}

	result, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-1234abcd",
	})
	require.NoError(t, err)
	assert.True(t, result.DidChange())
	assert.Equal(t, []string{"123456789012"}, result.Before.UserIDs)
	assert.True(t, result.After.IsZero())

	// The whole current set is revoked in one Remove; nothing is added.
	require.NotNil(t, modifyInput)
	require.NotNil(t, modifyInput.LaunchPermission)
	assert.Empty(t, modifyInput.LaunchPermission.Add)
	require.Len(t, modifyInput.LaunchPermission.Remove, 2)
	assert.Equal(t, "123456789012", aws.ToString(modifyInput.LaunchPermission.Remove[0].UserId))
	assert.Equal(t, ec2types.PermissionGroupAll, modifyInput.LaunchPermission.Remove[1].Group)
}

func TestUpdateLaunchPermissionsAlreadyConverged(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()
	modifyCalled := false

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return availableImage("ami-1234abcd", "shared"), nil
	}
	mock.DescribeImageAttributeFunc = func(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error) {
		return permissionAttribute([]string{"222", "111"}, nil), nil
	}
	mock.ModifyImageAttributeFunc = func(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error) {
		modifyCalled = true
		return &ec2.ModifyImageAttributeOutput{}, nil
	}

	// Same set, different order.
	result, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-1234abcd",
		Desired: LaunchPermissions{UserIDs: []string{"111", "222"}},
	})
	require.NoError(t, err)
	assert.False(t, result.DidChange())
	assert.Equal(t, "AMI not updated", result.Message)
	assert.False(t, modifyCalled)
}

func TestUpdateLaunchPermissionsBothEmpty(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()
	modifyCalled := false

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return availableImage("ami-1234abcd", "private"), nil
	}
	mock.DescribeImageAttributeFunc = func(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error) {
		return permissionAttribute(nil, nil), nil
	}
	mock.ModifyImageAttributeFunc = func(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error) {
		modifyCalled = true
		return &ec2.ModifyImageAttributeOutput{}, nil
	}

	result, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-1234abcd",
	})
	require.NoError(t, err)
	assert.False(t, result.DidChange())
	assert.False(t, modifyCalled)
}

func TestUpdateLaunchPermissionsMissingImage(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return &ec2.DescribeImagesOutput{}, nil
	}

	_, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-missing1",
		Desired: LaunchPermissions{UserIDs: []string{"111"}},
	})
	var remoteErr *RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "ami-missing1", remoteErr.ResourceID)
	assert.Contains(t, remoteErr.Error(), "does not exist")
}

func TestUpdateLaunchPermissionsGrantFailure(t *testing.T) {
	t.Parallel()

	controller, mock := newTestController()

	mock.DescribeImagesFunc = func(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
		return availableImage("ami-1234abcd", "shared"), nil
	}
	mock.DescribeImageAttributeFunc = func(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error) {
		return permissionAttribute(nil, nil), nil
	}
	mock.ModifyImageAttributeFunc = func(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "AuthFailure", Message: "not allowed"}
	}

	_, err := controller.UpdateLaunchPermissions(context.Background(), &UpdatePermissionsRequest{
		ImageID: "ami-1234abcd",
		Desired: LaunchPermissions{UserIDs: []string{"111"}},
	})
	var remoteErr *RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "AuthFailure", remoteErr.Code)
	assert.Equal(t, "ami-1234abcd", remoteErr.ResourceID)
}
