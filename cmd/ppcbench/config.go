package main

import "strings"

// URI is a trimmed port of the teacher's config.go URI type: this harness
// only ever needs to tell a local directory apart from a remote HTTP(S)
// dataset source (run uses it to reject an HTTP(S) -i value and point the
// caller at fetch), so the CID/IPFS/Filecoin variants are dropped.
type URI string

func (u URI) String() string { return string(u) }

func (u URI) IsZero() bool { return u == "" }

func (u URI) IsLocal() bool {
	return !u.IsZero() && !u.IsRemoteWeb()
}

func (u URI) IsRemoteWeb() bool {
	s := string(u)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
