// Package process spawns module processes and owns their handles.
//
// On unix every module runs in its own process group so Terminate and Kill
// reach any helpers the module forks. On windows only the direct child is
// signalled.
package process
