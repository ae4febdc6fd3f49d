/*
Package elements provides the built-in builder commands and the Workspace they
operate on.

	elements/create   {type, props?, settings?, label?, parentId?, index?}
	elements/update   {id, props?, unset?, settings?, label?, locked?, visible?}
	elements/move     {id, parentId, index?}
	elements/clone    {id, parentId?, index?, props?}
	elements/destroy  {id}
	editor/select     {id?}
	editor/copy       {id}
	editor/paste      {parentId?, index?}

Every command validates its arguments with command.Decode, checks its
precondition under the Workspace lock, mutates the tree and then fires the
matching hooks action once the lock is released.
*/
package elements
