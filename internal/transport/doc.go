// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport turns a streamed HTTP response into event payloads.
//
// # Key Types
//
//   - Client: Opens a run's stream with POST <endpoint>?userprompt=<prompt>
//   - FileSource: Replays a captured stream from disk
//   - Reader: Incremental UTF-8 line reader yielding "data: " payloads
//   - TransportError: Terminal failure to obtain or read the stream
//
// # Usage
//
//	body, err := transport.NewClient(endpoint).Open(ctx, prompt)
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
//
//	r := transport.NewReader(body)
//	for {
//	    payload, err := r.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    handle(payload)
//	}
package transport
