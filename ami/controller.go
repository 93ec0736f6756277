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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/amictl/amictl/logging"
)

// Controller converges EC2 images toward a desired state. Operations are
// synchronous and idempotent: repeated invocations with the same request
// are safe and report whether anything changed.
//
// Two callers targeting the same image name concurrently can both
// observe "no existing image" and both create one; the registry exposes
// no transactional primitive this controller could use to close that
// window.
type Controller struct {
	clients *AWSClients

	// sleep and now are indirections over the clock so polling loops can
	// be tested without wall time.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewController creates a controller over the given AWS clients.
func NewController(clients *AWSClients) *Controller {
	return &Controller{
		clients: clients,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// Result is implemented by every operation result.
type Result interface {
	// DidChange reports whether the operation modified remote state.
	DidChange() bool
}

// EnsureResult is the outcome of a create or register operation.
type EnsureResult struct {
	Changed bool         `json:"changed"`
	Message string       `json:"msg"`
	Image   *ImageRecord `json:"image,omitempty"`
}

// DidChange reports whether the operation modified remote state.
func (r *EnsureResult) DidChange() bool { return r.Changed }

// fetchOutcome classifies what a point lookup of an image observed.
type fetchOutcome int

const (
	// imageFound: the image exists and its record is populated.
	imageFound fetchOutcome = iota
	// imageNotFound: the registry has no image under this identifier.
	imageNotFound
	// imageGone: the identifier is recognized but the image has been
	// deregistered. The registry signals this either with a record in
	// the deregistered state or with an InvalidAMIID.Unavailable
	// rejection; both collapse to this outcome.
	imageGone
)

// fetchImage looks up a single image by identifier and classifies the
// response as found, not found, or gone. Only genuine remote failures
// are returned as errors.
func (c *Controller) fetchImage(ctx context.Context, imageID string) (*ec2types.Image, fetchOutcome, error) {
	out, err := c.clients.EC2.DescribeImages(ctx, &ec2.DescribeImagesInput{
		ImageIds: []string{imageID},
	})
	if err != nil {
		if isImageNotFound(err) {
			return nil, imageNotFound, nil
		}
		if isImageUnavailable(err) {
			return nil, imageGone, nil
		}
		return nil, imageNotFound, wrapRemote("describe image", err)
	}
	if len(out.Images) == 0 {
		return nil, imageNotFound, nil
	}

	img := out.Images[0]
	if img.State == ec2types.ImageStateDeregistered {
		return &img, imageGone, nil
	}
	return &img, imageFound, nil
}

// findImageByName looks up an existing image by name. Name is the
// idempotence key for create and register: the registry does not enforce
// name uniqueness, so two images sharing a name (across accounts that
// share images, for instance) make this lookup ambiguous; the first
// match wins, as it always has.
func (c *Controller) findImageByName(ctx context.Context, name string) (*ec2types.Image, error) {
	out, err := c.clients.EC2.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("name"), Values: []string{name}},
		},
	})
	if err != nil {
		return nil, wrapRemote("describe images by name", err)
	}
	if len(out.Images) == 0 {
		return nil, nil
	}
	return &out.Images[0], nil
}

// Create ensures an image built from the request's source instance
// exists. If an image with the requested name is already registered, it
// is returned unchanged.
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*EnsureResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := c.findImageByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logging.DebugContext(ctx, "image name %q already present as %s", req.Name, aws.ToString(existing.ImageId))
		return &EnsureResult{
			Changed: false,
			Message: "AMI name already present",
			Image:   newImageRecord(existing),
		}, nil
	}

	mappings, err := buildDeviceMappings(req.DeviceMappings)
	if err != nil {
		return nil, err
	}

	input := &ec2.CreateImageInput{
		InstanceId: aws.String(req.InstanceID),
		Name:       aws.String(req.Name),
		NoReboot:   aws.Bool(req.NoReboot),
	}
	if req.Description != "" {
		input.Description = aws.String(req.Description)
	}
	if len(mappings) > 0 {
		input.BlockDeviceMappings = mappings
	}

	logging.InfoContext(ctx, "creating image %q from instance %s", req.Name, req.InstanceID)
	out, err := c.clients.EC2.CreateImage(ctx, input)
	if err != nil {
		return nil, wrapRemote("create image", err)
	}

	return c.finishEnsure(ctx, aws.ToString(out.ImageId), req.Wait, req.waitTimeout(), req.Tags, req.Permissions)
}

// Register ensures an image registered from the request's source exists.
// If an image with the requested name is already registered, it is
// returned unchanged.
func (c *Controller) Register(ctx context.Context, req *RegisterRequest) (*EnsureResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := c.findImageByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logging.DebugContext(ctx, "image name %q already present as %s", req.Name, aws.ToString(existing.ImageId))
		return &EnsureResult{
			Changed: false,
			Message: "AMI name already present",
			Image:   newImageRecord(existing),
		}, nil
	}

	input, err := c.buildRegisterInput(req)
	if err != nil {
		return nil, err
	}

	logging.InfoContext(ctx, "registering image %q", req.Name)
	out, err := c.clients.EC2.RegisterImage(ctx, input)
	if err != nil {
		return nil, wrapRemote("register image", err)
	}

	return c.finishEnsure(ctx, aws.ToString(out.ImageId), req.Wait, req.waitTimeout(), req.Tags, req.Permissions)
}

// buildRegisterInput translates a validated register request into the
// SDK call parameters.
func (c *Controller) buildRegisterInput(req *RegisterRequest) (*ec2.RegisterImageInput, error) {
	input := &ec2.RegisterImageInput{
		Name:               aws.String(req.Name),
		VirtualizationType: aws.String(string(req.VirtualizationType)),
	}
	if req.Description != "" {
		input.Description = aws.String(req.Description)
	}
	if req.Architecture != "" {
		input.Architecture = ec2types.ArchitectureValues(req.Architecture)
	}
	if req.KernelID != "" {
		input.KernelId = aws.String(req.KernelID)
	}
	if req.RootDeviceName != "" {
		input.RootDeviceName = aws.String(req.RootDeviceName)
	}
	if req.ImageLocation != "" {
		input.ImageLocation = aws.String(req.ImageLocation)
	}
	if req.SriovNetSupport != "" {
		input.SriovNetSupport = aws.String(req.SriovNetSupport)
	}

	switch {
	case req.SnapshotID != "":
		// The root volume is built straight from the snapshot; the
		// mapping is synthesized here rather than supplied by the caller.
		input.BlockDeviceMappings = []ec2types.BlockDeviceMapping{
			{
				DeviceName: aws.String(req.RootDeviceName),
				Ebs: &ec2types.EbsBlockDevice{
					SnapshotId:          aws.String(req.SnapshotID),
					DeleteOnTermination: aws.Bool(req.DeleteRootVolumeOnTermination),
				},
			},
		}
	case len(req.DeviceMappings) > 0:
		mappings, err := buildDeviceMappings(req.DeviceMappings)
		if err != nil {
			return nil, err
		}
		input.BlockDeviceMappings = mappings
	}

	return input, nil
}

// finishEnsure runs the shared tail of create and register: wait for the
// new image to converge, then apply tags and launch permissions.
func (c *Controller) finishEnsure(ctx context.Context, imageID string, wait bool, waitTimeout int, tags map[string]string, perms *LaunchPermissions) (*EnsureResult, error) {
	img, err := c.waitForAvailable(ctx, imageID, wait, waitTimeout)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		logging.DebugContext(ctx, "tagging image %s", imageID)
		_, err := c.clients.EC2.CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: []string{imageID},
			Tags:      tagsFromMap(tags),
		})
		if err != nil {
			// The image exists at this point; there is no rollback.
			remote := wrapRemote("image tagging", err)
			remote.ResourceID = imageID
			return nil, remote
		}
	}

	if perms != nil && !perms.IsZero() {
		logging.DebugContext(ctx, "setting launch permissions on image %s", imageID)
		_, err := c.clients.EC2.ModifyImageAttribute(ctx, &ec2.ModifyImageAttributeInput{
			ImageId: aws.String(imageID),
			LaunchPermission: &ec2types.LaunchPermissionModifications{
				Add: perms.toEC2(),
			},
		})
		if err != nil {
			remote := wrapRemote("set launch permissions", err)
			remote.ResourceID = imageID
			return nil, remote
		}
	}

	// Refresh the record so tags and permissions applied above are
	// reflected in the returned state.
	final, outcome, err := c.fetchImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if outcome != imageFound {
		final = img
	}

	return &EnsureResult{
		Changed: true,
		Message: "AMI creation operation complete",
		Image:   newImageRecord(final),
	}, nil
}

// waitForAvailable polls the registry until the image reaches the
// available state, for up to waitTimeout iterations at one-second
// spacing. A successful create call does not guarantee the image is
// visible to an immediate describe, so not-found responses during the
// loop are transient; genuine remote failures escalate only on the
// final iteration when waiting was requested, mirroring the registry's
// eventual-consistency contract.
func (c *Controller) waitForAvailable(ctx context.Context, imageID string, wait bool, waitTimeout int) (*ec2types.Image, error) {
	var last *ec2types.Image

	for i := 0; i < waitTimeout; i++ {
		img, outcome, err := c.fetchImage(ctx, imageID)
		if err != nil {
			if wait && i == waitTimeout-1 {
				return nil, err
			}
		} else if outcome == imageFound {
			last = img
			if ImageState(img.State) == ImageStateAvailable {
				return img, nil
			}
		}
		c.sleep(time.Second)
	}

	if last != nil && ImageState(last.State) == ImageStateAvailable {
		return last, nil
	}
	return nil, &ConvergenceTimeoutError{
		ImageID: imageID,
		Target:  string(ImageStateAvailable),
		Waited:  time.Duration(waitTimeout) * time.Second,
	}
}

// Ensure dispatches a declarative request to the operation its mode
// selects. Exactly one operation block must be populated.
func (c *Controller) Ensure(ctx context.Context, req *ImageRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Mode {
	case ModeCreate:
		return c.Create(ctx, req.Create)
	case ModeRegister:
		return c.Register(ctx, req.Register)
	case ModeDeregister:
		return c.Deregister(ctx, req.Deregister)
	default:
		return c.UpdateLaunchPermissions(ctx, req.Permissions)
	}
}
