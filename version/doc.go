// Package version holds build version information for the pagestream
// command.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pagestream/version.Version=1.0.0" ./cmd/pagestream
package version
