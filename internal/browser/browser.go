// Package browser opens a URL in the user's default browser. This is a
// fire-and-forget convenience with no feedback loop: errors are returned
// for logging but nothing depends on the launch having worked.
package browser

// Open launches the platform's URL handler for url without waiting for it.
func Open(url string) error {
	return open(url)
}
