/*
Package deque implements a double-ended queue backed by two arrays.

Field storage is traversed far more often than it is resized, so the elements are kept in
plain arrays for locality. One array grows towards the front, the other towards the
back. When the array an insertion needs is exhausted while the queue still has room, the
elements are compacted into the opposite array.
*/
package deque
