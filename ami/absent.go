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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/amictl/amictl/logging"
)

// deregisterPollInterval is the spacing of the deregistration wait loop.
const deregisterPollInterval = 3 * time.Second

// DeregisterResult is the outcome of a deregister operation.
// SnapshotsDeleted lists every snapshot that was targeted for deletion,
// including any that turned out to be already gone.
type DeregisterResult struct {
	Changed          bool     `json:"changed"`
	Message          string   `json:"msg"`
	SnapshotsDeleted []string `json:"snapshots_deleted,omitempty"`
}

// DidChange reports whether the operation modified remote state.
func (r *DeregisterResult) DidChange() bool { return r.Changed }

// Deregister ensures the requested image is absent from the registry.
// Deregistering an image that does not exist, or that has already been
// deregistered, is a successful no-op reported as unchanged.
//
// When snapshot deletion is requested, the snapshot references are
// captured from the image's block device mapping before deregistering;
// the registry makes that information unavailable afterwards. A
// snapshot deletion failure still returns the captured list alongside
// the error.
func (c *Controller) Deregister(ctx context.Context, req *DeregisterRequest) (*DeregisterResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	img, outcome, err := c.fetchImage(ctx, req.ImageID)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case imageNotFound:
		return &DeregisterResult{
			Changed: false,
			Message: fmt.Sprintf("image %s does not exist, nothing to deregister", req.ImageID),
		}, nil
	case imageGone:
		return &DeregisterResult{
			Changed: false,
			Message: fmt.Sprintf("image %s has already been deleted", req.ImageID),
		}, nil
	}

	snapshots := newImageRecord(img).snapshotIDs()

	logging.InfoContext(ctx, "deregistering image %s", req.ImageID)
	_, err = c.clients.EC2.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: aws.String(req.ImageID),
	})
	if err != nil {
		return nil, wrapRemote("deregister image", err)
	}

	if req.Wait {
		if err := c.waitForDeregistered(ctx, req.ImageID, req.waitTimeout()); err != nil {
			return nil, err
		}
	}

	result := &DeregisterResult{
		Changed: true,
		Message: "AMI deregister/delete operation complete",
	}

	if req.DeleteSnapshots {
		result.SnapshotsDeleted = snapshots
		for _, snapshotID := range snapshots {
			logging.DebugContext(ctx, "deleting snapshot %s", snapshotID)
			_, err := c.clients.EC2.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
				SnapshotId: aws.String(snapshotID),
			})
			if err != nil {
				// The root volume snapshot may already have been removed
				// as a side effect of deregistration.
				if isSnapshotNotFound(err) {
					logging.DebugContext(ctx, "snapshot %s already deleted", snapshotID)
					continue
				}
				return result, wrapRemote("delete snapshot", err)
			}
		}
	}

	return result, nil
}

// waitForDeregistered polls until the image is no longer retrievable,
// at three-second spacing against an absolute deadline.
func (c *Controller) waitForDeregistered(ctx context.Context, imageID string, waitTimeout int) error {
	timeout := time.Duration(waitTimeout) * time.Second
	deadline := c.now().Add(timeout)

	for {
		_, outcome, err := c.fetchImage(ctx, imageID)
		if err != nil {
			return err
		}
		if outcome != imageFound {
			return nil
		}
		if !c.now().Before(deadline) {
			return &ConvergenceTimeoutError{
				ImageID: imageID,
				Target:  string(ImageStateDeregistered),
				Waited:  timeout,
			}
		}
		c.sleep(deregisterPollInterval)
	}
}
