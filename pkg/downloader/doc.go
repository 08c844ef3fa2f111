/*
Copyright The Provisioner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package downloader fetches a single artifact from a remote endpoint and
// persists it to disk.
//
// A Downloader owns one transfer end-to-end:
// - ensure the destination directory exists (best effort)
// - open a connection context and bind a transfer handle through pkg/getter
// - drive the transfer with a poll loop until the connection reports done
// - gate on the transport error flag, a 2xx status and a non-empty body
// - write the body next to the destination and rename it into place
//
// The connection, the transfer and the body buffer are released exactly once
// on every exit path. Failures are reported as *Error values carrying a Kind.
package downloader
