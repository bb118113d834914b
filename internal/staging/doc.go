// Package staging reclaims the hidden temporary archives that an interrupted
// descriptor injection leaves next to the original file.
package staging
