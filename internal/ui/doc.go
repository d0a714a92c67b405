// Package ui holds the colour themes shared by the once-mode printer and the
// terminal dashboard, and maps utilization percentages to load colours.
package ui
