// Package termview renders the dashboard's widgets in a terminal.
//
// A [View] is a [statsboard.Sink]: every draw replaces the render of its
// widget and every alert is queued as a modal message that stays on screen
// until dismissed. Table widgets map onto a termui table, gauge widgets onto
// one gauge per row and line charts onto a plot of every numeric column.
package termview
