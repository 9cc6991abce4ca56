// Package textutil turns heading text into file-name slugs.
package textutil
