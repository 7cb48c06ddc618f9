package scan

import "os"

// Stdin is the file name that makes ScanFile read standard input.
const Stdin = "-"

// ScanFile opens path, scans it to completion and closes it.
func (s *Scanner) ScanFile(path string) error {
	if path == Stdin {
		return s.Scan("<stdin>", os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Scan(path, f)
}

// ScanFiles scans each path in order, stopping at the first error.
func (s *Scanner) ScanFiles(paths []string) error {
	for _, p := range paths {
		if err := s.ScanFile(p); err != nil {
			return err
		}
	}
	return nil
}
