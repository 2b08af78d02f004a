// Package core contains the domain contracts shared across gptbot: the
// conversation Turn and Session types plus the SessionStore interface.
// Concrete storage implementations live in the session package; keeping the
// contracts here prevents higher level packages (server, façade) from
// depending on concrete storage.
package core
