package protoc

import "fmt"

// ErrClientConfigInvalid is returned when a credential value doesn't assert
// to the provider-specific type a given Client implementation expects.
var ErrClientConfigInvalid = fmt.Errorf("client: config invalid, expected S3-compatible credentials")
