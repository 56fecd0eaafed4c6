// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package casting

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

var ErrEmptyImagePool = errors.New("image pool has no entries")

var defaultImages = []string{
	"images/anchor.png", "images/balloon.png", "images/bicycle.png", "images/boat.png",
	"images/cactus.png", "images/camera.png", "images/castle.png", "images/cloud.png",
	"images/compass.png", "images/crown.png", "images/drum.png", "images/feather.png",
	"images/fox.png", "images/guitar.png", "images/kite.png", "images/lamp.png",
	"images/leaf.png", "images/lighthouse.png", "images/moon.png", "images/mushroom.png",
	"images/owl.png", "images/pine.png", "images/rocket.png", "images/shell.png",
	"images/snail.png", "images/teapot.png", "images/tulip.png", "images/whale.png",
}

// ImagePool is the set of pictures a reminder artifact is shown with.
type ImagePool struct {
	images []string
}

// DefaultImagePool returns the built-in image set.
func DefaultImagePool() *ImagePool {
	return &ImagePool{images: append([]string(nil), defaultImages...)}
}

// NewImagePool builds a pool from explicit names.
func NewImagePool(images []string) (*ImagePool, error) {
	if len(images) == 0 {
		return nil, ErrEmptyImagePool
	}
	return &ImagePool{images: append([]string(nil), images...)}, nil
}

// LoadImagePool reads one image name per line. Blank lines and lines
// starting with # are skipped. An empty path yields the default pool.
func LoadImagePool(path string) (*ImagePool, error) {
	if path == "" {
		return DefaultImagePool(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image pool: %w", err)
	}
	defer f.Close()

	var images []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		images = append(images, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image pool: %w", err)
	}

	pool, err := NewImagePool(images)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

// Pick returns a uniformly random image name.
func (p *ImagePool) Pick() string {
	return p.images[rand.IntN(len(p.images))]
}

// Len returns the number of images in the pool.
func (p *ImagePool) Len() int {
	return len(p.images)
}
