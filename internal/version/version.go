package version

// Name identifies the service in telemetry and logs.
const Name = "concurd"

// Version is the release version stamped at build time.
var Version = "dev"
