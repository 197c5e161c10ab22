/*
Package wizard implements the step controller of multi-step workflows.

A Controller walks a fixed list of Steps over a layout.Manager shared by every
step. Transitions are NEXT, BACK, RESET and GO_TO_STEP; entering a step mounts
the layouts it declares in Step.Hydrates.

Steps talk to the wizard through a StepContext: submit (NEXT or an override),
back, busy and error flags, and wizard-wide warnings. The "start over" action is
only offered on the last step or on a step that reported an error.
*/
package wizard
