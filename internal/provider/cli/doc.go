// Package cli drives an external command-line program as the model backend.
//
// Each turn spawns one process from a command template. Standard output is
// read line by line; in JSON mode every line is decoded and its content,
// message or text field becomes a text delta. A session identifier reported
// by the program is persisted through a store.SessionStore so the next
// process for the same spec directory resumes the backend's context.
//
// The program runs its own tool loop, so no tool envelopes are produced here.
package cli
