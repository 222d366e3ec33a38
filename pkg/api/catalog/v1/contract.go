package catalogv1

import _ "embed"

// Contract is the protobuf definition the types and service descriptor of this package follow.
//
//go:embed catalog.proto
var Contract string
