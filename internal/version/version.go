// ABOUTME: Version and product identity for SonicMapper
// ABOUTME: Version is overridden at build time with -ldflags "-X .../version.Version=x.y.z"
package version

var Version = "0.1.0"

const (
	Product      = "SonicMapper"
	Manufacturer = "SonicMapper"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
