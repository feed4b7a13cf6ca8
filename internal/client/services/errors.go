package services

import "errors"

var ErrCollectionNotOpen = errors.New("collection not open")
