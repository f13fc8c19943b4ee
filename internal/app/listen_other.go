//go:build !unix

package app

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
