/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package pdfapi implements the HTTP API of pdfgate: conversion endpoints guarded by
// the admission controller and the quota status endpoints.
package pdfapi
