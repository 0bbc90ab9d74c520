package models

import "errors"

var (
	// ErrConfiguration indicates missing credentials or an uninitialized pipeline
	ErrConfiguration = errors.New("configuration error")

	// ErrNoDocuments indicates ingestion found no source files
	ErrNoDocuments = errors.New("no documents found")

	// ErrRetrieval indicates the query embedding or index lookup failed
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the language model call failed or timed out
	ErrGeneration = errors.New("generation failed")

	// ErrPersistence indicates the session store is unavailable
	ErrPersistence = errors.New("persistence failed")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexNotFound indicates no embedding index has been built yet
	ErrIndexNotFound = errors.New("index not found")
)
