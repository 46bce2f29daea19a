package main

import "errors"

// Sentinel errors for command operations
var (
	ErrUnknownFormat     = errors.New("unknown output format")
	ErrUnknownNodeType   = errors.New("unknown node type")
	ErrCasesFailed       = errors.New("some cases failed")
	ErrFileNotFormatted  = errors.New("file is not formatted")
	ErrFormattingErrors  = errors.New("some files had formatting errors")
	ErrInputFileNotExist = errors.New("input file does not exist")
)
