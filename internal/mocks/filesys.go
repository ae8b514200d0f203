// Package mocks holds testify doubles for the seams takedown injects:
// the file system and the domain resolver.
package mocks

import (
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/takedown/internal/filesys"
)

var _ filesys.FS = (*MockOsFS)(nil)

// MockOsFS is a testify mock of filesys.FS.
type MockOsFS struct {
	mock.Mock
}

// fileArg unwraps a possibly-nil *os.File return value.
func fileArg(args mock.Arguments, i int) *os.File {
	if f, ok := args.Get(i).(*os.File); ok {
		return f
	}
	return nil
}

// MkdirAll mocks the MkdirAll method.
func (m *MockOsFS) MkdirAll(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

// Open mocks the Open method.
func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	return fileArg(args, 0), args.Error(1)
}

// CreateTemp mocks the CreateTemp method.
func (m *MockOsFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	return fileArg(args, 0), args.Error(1)
}

// Rename mocks the Rename method.
func (m *MockOsFS) Rename(old, newPath string) error {
	return m.Called(old, newPath).Error(0)
}

// Remove mocks the Remove method.
func (m *MockOsFS) Remove(p string) error {
	return m.Called(p).Error(0)
}

// Chmod mocks the Chmod method.
func (m *MockOsFS) Chmod(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}
