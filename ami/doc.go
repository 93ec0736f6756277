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

// Package ami implements an idempotent lifecycle controller for Amazon
// Machine Images: creating them from instances, registering them from
// snapshots, device mappings, or S3 manifests, deregistering them, and
// managing their launch permissions.
//
// # Architecture Overview
//
//   - [Controller]: the entry point; one method per operation, all
//     synchronous and context-aware
//   - [CreateRequest], [RegisterRequest], [DeregisterRequest],
//     [UpdatePermissionsRequest]: typed desired-state inputs, validated
//     before any remote call
//   - [ImageRequest]: tagged union over the four operations for the
//     declarative apply path
//   - [ImageRecord]: the observed remote state returned by operations
//   - [AWSClients]: AWS SDK client wrapper with an interface-typed EC2
//     field for test injection
//
// # Idempotence
//
// Create and Register treat the image name as the idempotence key: if an
// image with the requested name already exists, the operation reports no
// change and returns the existing record. The registry does not enforce
// name uniqueness, so this is a convention, not a guarantee. Deregister
// reports an unchanged no-op for images that are already absent.
//
// # Convergence
//
// The registry is eventually consistent: a successful create call does
// not guarantee the new image is visible to an immediate lookup. The
// controller bridges this with two bounded polling loops, one waiting
// for a new image to become available (one-second spacing, iteration
// bound) and one waiting for a deregistered image to disappear
// (three-second spacing, deadline bound). Exceeding either bound yields
// a [ConvergenceTimeoutError].
//
// # Error Handling
//
// Failures are typed: [ValidationError] for malformed requests (always
// raised before remote calls), [RemoteAPIError] for registry rejections
// (preserving the provider code and message, and the identifier of any
// already-created resource), and [ConvergenceTimeoutError] for expired
// polling bounds. Use [errors.As] to inspect them. Nothing is retried
// beyond the two polling loops, and a mid-operation failure performs no
// rollback of earlier steps.
package ami
