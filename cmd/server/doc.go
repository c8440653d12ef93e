// Command server runs the TabMirror backend: the HTTP and WebSocket
// service exposing synced foreign sessions and the package install flow.
package main
