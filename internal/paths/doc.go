// Provides platform-appropriate paths for hoist.
//
// Run state lives under the XDG state directory on Linux and the
// platform-native equivalent on macOS and Windows. The name "hoist" is used
// as the subdirectory under each base path.
package paths
